package env

type Args struct {
	Test    *bool
	Demo    *bool
	Verbose *bool
	Speedon *bool
	Diron   *bool
	Config  *string
	Bus     *string
}

// Bool dereferences an optional flag.
func Bool(b *bool) bool {
	return b != nil && *b
}

func String(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
