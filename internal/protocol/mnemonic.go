package protocol

// Mnemonic markers: local labels use '&', the wire uses '_'.
const (
	LocalMnemonic = '&'
	WireMnemonic  = '_'
)

// SwapMnemonic rewrites a label from one mnemonic marker to another:
//   - a doubled src is a literal src and is emitted once;
//   - the first single src becomes dst, later single srcs are dropped;
//   - a trailing lone src is dropped;
//   - a literal dst in the input is escaped by doubling it.
func SwapMnemonic(in string, src, dst rune) string {
	runes := []rune(in)
	out := make([]rune, 0, len(runes)+2)
	found := false
	for pos := 0; pos < len(runes); {
		ch := runes[pos]
		switch {
		case ch == src:
			switch {
			case pos == len(runes)-1:
				pos++
			case runes[pos+1] == src:
				out = append(out, src)
				pos += 2
			case !found:
				found = true
				out = append(out, dst)
				pos++
			default:
				pos++
			}
		case ch == dst:
			out = append(out, dst, dst)
			pos++
		default:
			out = append(out, ch)
			pos++
		}
	}
	return string(out)
}

// LabelToWire converts a local label to its wire form.
func LabelToWire(label string) string {
	return SwapMnemonic(label, LocalMnemonic, WireMnemonic)
}

// LabelFromWire converts a wire label to its local form.
func LabelFromWire(label string) string {
	return SwapMnemonic(label, WireMnemonic, LocalMnemonic)
}
