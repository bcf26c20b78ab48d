package rawhttp

import "strings"

// RawHeaders is an ordered list of header key/value pairs. Unlike
// [net/http.Header], keys are not canonicalized and values with the same
// key are not folded together: order, duplicates and casing survive every
// transformation exactly as given.
type RawHeaders [][2]string

// PairFlat groups a flat alternating key/value sequence two at a time into
// RawHeaders, preserving input order. The input length must be even; a
// trailing unpaired key is grouped with an empty value, callers are
// expected to not rely on that.
func PairFlat(flat []string) RawHeaders {
	if len(flat) == 0 {
		return nil
	}
	h := make(RawHeaders, 0, (len(flat)+1)/2)
	for i := 0; i < len(flat); i += 2 {
		kv := [2]string{flat[i], ""}
		if i+1 < len(flat) {
			kv[1] = flat[i+1]
		}
		h = append(h, kv)
	}
	return h
}

// Flatten is the inverse of [PairFlat], concatenating each pair's key then
// value in order.
func (h RawHeaders) Flatten() []string {
	if len(h) == 0 {
		return nil
	}
	flat := make([]string, 0, len(h)*2)
	for _, kv := range h {
		flat = append(flat, kv[0], kv[1])
	}
	return flat
}

// Get returns the value of the first header whose key matches
// case-insensitively. It exists for reading framing headers off received
// responses, not for mutating what goes on the wire.
func (h RawHeaders) Get(key string) (string, bool) {
	for _, kv := range h {
		if strings.EqualFold(kv[0], key) {
			return kv[1], true
		}
	}
	return "", false
}

// Values returns all values for key, matched case-insensitively, in order.
func (h RawHeaders) Values(key string) []string {
	var vs []string
	for _, kv := range h {
		if strings.EqualFold(kv[0], key) {
			vs = append(vs, kv[1])
		}
	}
	return vs
}

func (h RawHeaders) Clone() RawHeaders {
	if h == nil {
		return nil
	}
	return append(RawHeaders(nil), h...)
}
