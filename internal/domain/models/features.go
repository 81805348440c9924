package models

// FeatureSet carries the flat per-symbol feature mapping consumed by the
// scoring pipeline. Values holds numeric features keyed by the scorer
// vocabularies; Tags holds non-scored metadata (category, symbol) that must
// survive validation untouched.
// Note: no transport (json/http) concerns here.
type FeatureSet struct {
	Values map[string]float64
	Tags   map[string]string
}

func NewFeatureSet() FeatureSet {
	return FeatureSet{
		Values: make(map[string]float64),
		Tags:   make(map[string]string),
	}
}

// Has reports whether a numeric feature is present. Scorers that treat
// absence differently from a neutral value (global-markets block averages)
// check this instead of reading a zero.
func (f FeatureSet) Has(key string) bool {
	_, ok := f.Values[key]
	return ok
}

// Get returns the feature value, or def when absent.
func (f FeatureSet) Get(key string, def float64) float64 {
	if v, ok := f.Values[key]; ok {
		return v
	}
	return def
}

// Tag returns the metadata value for key, or "" when absent.
func (f FeatureSet) Tag(key string) string {
	return f.Tags[key]
}

// Clone returns a deep copy so validation never mutates caller input.
func (f FeatureSet) Clone() FeatureSet {
	out := FeatureSet{
		Values: make(map[string]float64, len(f.Values)),
		Tags:   make(map[string]string, len(f.Tags)),
	}
	for k, v := range f.Values {
		out.Values[k] = v
	}
	for k, v := range f.Tags {
		out.Tags[k] = v
	}
	return out
}
