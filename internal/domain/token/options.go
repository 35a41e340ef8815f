package token

// Option applies a configuration option to the issuer.
type Option func(*issuer)

// WithIDGenerator overrides token generation, mainly for tests.
func WithIDGenerator(gen func() string) Option {
	return func(i *issuer) {
		if gen != nil {
			i.newID = gen
		}
	}
}
