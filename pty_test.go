package serial

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// openPTY returns the master fd and slave path of a fresh pseudo terminal
func openPTY(t *testing.T) (int, string) {
	t.Helper()

	master, err := unix.Open("/dev/ptmx", unix.O_RDWR|unix.O_NOCTTY, 0)
	if err != nil {
		t.Skipf("pseudo terminals not available: %v", err)
	}
	t.Cleanup(func() { unix.Close(master) })

	if err := unix.IoctlSetPointerInt(master, unix.TIOCSPTLCK, 0); err != nil {
		t.Skipf("failed to unlock pty: %v", err)
	}
	n, err := unix.IoctlGetInt(master, unix.TIOCGPTN)
	if err != nil {
		t.Skipf("failed to get pty number: %v", err)
	}
	return master, fmt.Sprintf("/dev/pts/%d", n)
}

func TestIdlePortReadTimesOut(t *testing.T) {
	for _, driver := range []Driver{DriverNative, DriverBugst, DriverTarm} {
		t.Run(driver.String(), func(t *testing.T) {
			_, slave := openPTY(t)

			port, err := Open(slave, WithDriver(driver), WithReadTimeout(200*time.Millisecond))
			if err != nil {
				t.Fatalf("Failed to open %s: %v", slave, err)
			}
			defer port.Close()

			buf := make([]byte, 64)
			for i := 0; i < 3; i++ {
				n, err := port.Read(buf)
				if err != nil {
					t.Fatalf("Expected an idle read to time out quietly, got %v", err)
				}
				if n != 0 {
					t.Fatalf("Expected 0 bytes from an idle port, got %d", n)
				}
			}
		})
	}
}

func TestPortReadsAfterIdle(t *testing.T) {
	for _, driver := range []Driver{DriverNative, DriverBugst, DriverTarm} {
		t.Run(driver.String(), func(t *testing.T) {
			master, slave := openPTY(t)

			port, err := Open(slave, WithDriver(driver), WithReadTimeout(200*time.Millisecond))
			if err != nil {
				t.Fatalf("Failed to open %s: %v", slave, err)
			}
			defer port.Close()

			buf := make([]byte, 64)
			if _, err := port.Read(buf); err != nil {
				t.Fatalf("Unexpected error on idle read: %v", err)
			}

			want := []byte("Hey\x01")
			if _, err := unix.Write(master, want); err != nil {
				t.Fatalf("Failed to write to pty master: %v", err)
			}

			var got []byte
			deadline := time.Now().Add(2 * time.Second)
			for len(got) < len(want) && time.Now().Before(deadline) {
				n, err := port.Read(buf)
				if err != nil {
					t.Fatalf("Unexpected read error: %v", err)
				}
				got = append(got, buf[:n]...)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("Expected %q, got %q", want, got)
			}
		})
	}
}
