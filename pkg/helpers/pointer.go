package helpers

// StringPointer returns a pointer to s, or nil if s is empty.
func StringPointer(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
