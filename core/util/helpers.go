package util

// TransformOrNil returns nil if the value is nil, otherwise applies the
// transform function.
//
// Used when building log fields or snapshot maps where optional draft fields
// should surface as nil rather than a zero value.
//
// Example:
//
//	fields = append(fields, zap.Any("startTime", util.TransformOrNil(draft.StartTime, func(t civil.DateTime) any { return t.String() })))
func TransformOrNil[T any](value *T, transform func(T) any) any {
	if value == nil {
		return nil
	}
	return transform(*value)
}
