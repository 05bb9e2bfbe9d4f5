package shaping

// Record is the public (API) shape of one entity row.
type Record map[string]any

// Redact returns record unchanged for privileged callers and an allow-listed
// copy for everyone else. It never mutates record.
func Redact(record Record, allow []string, includeAll bool) Record {
	if includeAll {
		return record
	}
	out := make(Record, len(allow))
	for _, k := range allow {
		if v, ok := record[k]; ok {
			out[k] = v
		}
	}
	return out
}

func RedactAll(records []Record, allow []string, includeAll bool) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		out = append(out, Redact(r, allow, includeAll))
	}
	return out
}
