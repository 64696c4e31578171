package resolve

// Clone returns a shallow-keyed deep copy of the record: nested
// map[string]any values are copied recursively, everything else is shared.
func (r RawRecord) Clone() RawRecord {
	if r == nil {
		return nil
	}
	clone := make(RawRecord, len(r))
	for key, value := range r {
		clone[key] = cloneRecordValue(value)
	}
	return clone
}

// Keys returns the record's key set in enumeration order.
func (r RawRecord) Keys() []string {
	keys := make([]string, 0, len(r))
	for key := range r {
		keys = append(keys, key)
	}
	return keys
}

// MergeRecords composes two fallback records: explicit keys in strong are
// kept, missing data is filled from weak. Nested map[string]any values merge
// recursively; every other value type is taken whole from the stronger side.
func MergeRecords(strong, weak RawRecord) RawRecord {
	if strong == nil {
		return weak.Clone()
	}
	merged := weak.Clone()
	if merged == nil {
		merged = make(RawRecord, len(strong))
	}
	for key, value := range strong {
		existing, ok := merged[key]
		if !ok || existing == nil {
			merged[key] = cloneRecordValue(value)
			continue
		}
		strongMap, strongIsMap := value.(map[string]any)
		weakMap, weakIsMap := existing.(map[string]any)
		if strongIsMap && weakIsMap {
			merged[key] = map[string]any(MergeRecords(strongMap, weakMap))
			continue
		}
		merged[key] = cloneRecordValue(value)
	}
	return merged
}

func cloneRecordValue(value any) any {
	if nested, ok := value.(map[string]any); ok {
		return map[string]any(RawRecord(nested).Clone())
	}
	return value
}
