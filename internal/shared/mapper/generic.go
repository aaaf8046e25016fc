// Package mapper holds generic slice conversions shared by persistence
// mappers and DTO builders.
package mapper

// MapSliceWithError applies mapFunc to each element, stopping at the first
// error. A nil input yields nil.
func MapSliceWithError[T any, R any](items []T, mapFunc func(T) (R, error)) ([]R, error) {
	if items == nil {
		return nil, nil
	}

	result := make([]R, 0, len(items))
	for _, item := range items {
		mapped, err := mapFunc(item)
		if err != nil {
			return nil, err
		}
		result = append(result, mapped)
	}
	return result, nil
}

// MapSlicePtrSkipNil applies mapFunc to each element of a pointer slice,
// skipping nil inputs and nil outputs. The result is never nil, so it
// encodes as an empty JSON array.
func MapSlicePtrSkipNil[T any, R any](items []*T, mapFunc func(*T) *R) []*R {
	result := make([]*R, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if mapped := mapFunc(item); mapped != nil {
			result = append(result, mapped)
		}
	}
	return result
}
