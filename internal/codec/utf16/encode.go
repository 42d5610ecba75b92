package utf16

// Options configures a single EncodeInto call.
type Options struct {
	Order ByteOrder
	// Fatal makes a lone surrogate fail the call instead of being replaced.
	Fatal bool
	// Replacement is written verbatim for each lone surrogate when Fatal is
	// false. The bytes must already be in Order. Nil selects U+FFFD.
	Replacement []byte
}

// Result reports the progress of an EncodeInto call.
type Result struct {
	// Read is the number of code units consumed from the source.
	Read int
	// Written is the number of bytes produced, counted from the start offset.
	Written int
}

// EncodeInto encodes src into dst starting at dst[off]. It stops before the
// first step that does not fit in the rest of dst; that step and everything
// after it are left unread, so the caller can resume with src[Read:].
//
// In fatal mode a lone surrogate returns a *LoneSurrogateError together with
// the Result of the steps encoded before it. Those bytes stay in dst.
//
// A valid surrogate pair is always consumed or left whole. A high surrogate
// at the end of src is treated as lone.
func EncodeInto(src Text, dst []byte, off int, opts Options) (Result, error) {
	var res Result

	if off > len(dst) {
		off = len(dst)
	}
	buf := dst[off:]

	repl := opts.Replacement
	if repl == nil {
		repl = defaultReplacementBytes(opts.Order)
	}
	order := opts.Order.Binary()

	for res.Read < len(src) {
		n := stepLen(src, res.Read)
		u := src[res.Read]
		lone := n == 1 && IsSurrogate(u)

		need := 2 * n
		if lone && !opts.Fatal {
			need = len(repl)
		}
		if res.Written+need > len(buf) {
			break
		}

		switch {
		case !lone:
			for _, cu := range src[res.Read : res.Read+n] {
				order.PutUint16(buf[res.Written:], cu)
				res.Written += 2
			}
		case opts.Fatal:
			return res, &LoneSurrogateError{CodePoint: rune(u), Offset: res.Read}
		default:
			res.Written += copy(buf[res.Written:], repl)
		}

		res.Read += n
	}

	return res, nil
}

// EncodedLen returns the number of bytes EncodeInto would produce for src
// given an unbounded destination, using replLen bytes per lone surrogate.
func EncodedLen(src Text, replLen int) int {
	size := 0
	for i := 0; i < len(src); {
		n := stepLen(src, i)
		if n == 1 && IsSurrogate(src[i]) {
			size += replLen
		} else {
			size += 2 * n
		}
		i += n
	}
	return size
}
