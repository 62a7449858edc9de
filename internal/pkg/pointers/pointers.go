package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func Int(v int) *int          { return &v }
func String(v string) *string { return &v }

// Value dereferences p, returning the zero value for nil.
func Value[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// NonEmpty returns nil for blank strings.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
