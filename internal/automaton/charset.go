package automaton

// charset is a 256-bit byte set.
type charset [4]uint64

func (s *charset) add(c byte) {
	s[c>>6] |= 1 << (c & 63)
}

func (s *charset) addRange(lo, hi byte) {
	for c := int(lo); c <= int(hi); c++ {
		s.add(byte(c))
	}
}

func (s *charset) addString(chars string) {
	for i := 0; i < len(chars); i++ {
		s.add(chars[i])
	}
}

func (s charset) has(c byte) bool {
	return s[c>>6]&(1<<(c&63)) != 0
}

func (s charset) without(chars string) charset {
	for i := 0; i < len(chars); i++ {
		c := chars[i]
		s[c>>6] &^= 1 << (c & 63)
	}
	return s
}

func (s charset) minus(o charset) charset {
	for i := range s {
		s[i] &^= o[i]
	}
	return s
}

func (s charset) union(o charset) charset {
	for i := range s {
		s[i] |= o[i]
	}
	return s
}

// ranges returns the set as maximal inclusive byte ranges in ascending order.
func (s charset) ranges() [][2]byte {
	var out [][2]byte
	c := 0
	for c < 256 {
		if !s.has(byte(c)) {
			c++
			continue
		}
		lo := c
		for c < 256 && s.has(byte(c)) {
			c++
		}
		out = append(out, [2]byte{byte(lo), byte(c - 1)})
	}
	return out
}

func setOf(chars string) charset {
	var s charset
	s.addString(chars)
	return s
}

var (
	// tchar
	tokenChars = func() charset {
		var s charset
		s.addRange('a', 'z')
		s.addRange('A', 'Z')
		s.addRange('0', '9')
		s.addString("!#$%&'*+-.^_`|~")
		return s
	}()

	// field-vchar: VCHAR / obs-text
	visibleChars = func() charset {
		var s charset
		s.addRange(0x21, 0x7e)
		s.addRange(0x80, 0xff)
		return s
	}()

	owsChars = setOf(" \t")

	// field-vchar plus SP and HT
	valueChars = visibleChars.union(owsChars)

	digitChars = func() charset {
		var s charset
		s.addRange('0', '9')
		return s
	}()

	// etagc: %x21 / %x23-7E / obs-text
	etagChars = visibleChars.without(`"`)
)
