package demux

// Demultiplex partitions chunk into its text bytes and its control bytes.
// Relative order inside each result is kept, and every input byte lands in
// exactly one of them. Both results are non-nil and share no memory with
// chunk.
func Demultiplex(chunk []byte) (text, commands []byte) {
	text = make([]byte, 0, len(chunk))
	commands = make([]byte, 0)

	for _, b := range chunk {
		if Classify(b) == Control {
			commands = append(commands, b)
		} else {
			text = append(text, b)
		}
	}
	return text, commands
}
