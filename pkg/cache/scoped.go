package cache

// ScopedKeyer prefixes every key of an inner Keyer, so caches for unrelated
// projects can share one directory without colliding:
//
//	k := NewScopedKeyer(NewDefaultKeyer(), "v2:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner, or the DefaultKeyer when inner is nil.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) FrameKey(groupHash string, opts FrameKeyOpts) string {
	return k.prefix + k.inner.FrameKey(groupHash, opts)
}

func (k *ScopedKeyer) SummaryKey(inputHash string) string {
	return k.prefix + k.inner.SummaryKey(inputHash)
}
