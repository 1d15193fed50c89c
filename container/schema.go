package container

// Schema declares, per item name, the kinds a container accepts for that
// name. Names absent from the schema accept any kind. Validation happens at
// assignment time and yields a *KindError on mismatch.
type Schema map[string][]Kind

// Validate checks an assignment against the schema.
func (s Schema) Validate(name string, it Item) error {
	if s == nil {
		return nil
	}
	allowed, ok := s[name]
	if !ok {
		return nil
	}
	for _, k := range allowed {
		if it.kind == k {
			return nil
		}
	}
	return &KindError{Name: name, Got: it.kind, Want: append([]Kind(nil), allowed...)}
}
