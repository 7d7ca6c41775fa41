package models

// RecordFilter narrows record listings. The zero value matches everything;
// stores apply the fields that are set.
type RecordFilter struct {
	Statuses  []Status
	AssetType AssetType
	Limit     int
	Offset    int
}

// MatchesStatus reports whether the status passes the filter.
func (f RecordFilter) MatchesStatus(s Status) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, want := range f.Statuses {
		if want == s {
			return true
		}
	}
	return false
}

// MatchesType reports whether the asset type passes the filter.
func (f RecordFilter) MatchesType(t AssetType) bool {
	return f.AssetType == "" || f.AssetType == t
}
