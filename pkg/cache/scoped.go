package cache

// ScopedKeyer prefixes every key of an inner Keyer, for example to keep
// entries of different search API endpoints or deployments apart in a shared
// Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) SearchKey(endpoint, keyword string) string {
	return k.prefix + k.inner.SearchKey(endpoint, keyword)
}

func (k *ScopedKeyer) GraphKey(keyword string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(keyword, opts)
}

func (k *ScopedKeyer) ArtifactKey(graphHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, format)
}
