package num

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func trimLeadingZeros(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == '0' {
		i++
	}
	return b[i:]
}

func trimTrailingZeros(b []byte) []byte {
	end := len(b)
	for end > 0 && b[end-1] == '0' {
		end--
	}
	return b[:end]
}

func allZeros(b []byte) bool {
	for _, c := range b {
		if c != '0' {
			return false
		}
	}
	return true
}

func splitSign(b []byte) (int8, []byte) {
	if len(b) == 0 {
		return 1, b
	}
	switch b[0] {
	case '+':
		return 1, b[1:]
	case '-':
		return -1, b[1:]
	}
	return 1, b
}
