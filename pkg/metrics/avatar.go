package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvatarMetrics counts avatar lookups by outcome.
type AvatarMetrics struct {
	lookups *prometheus.CounterVec
}

// NewAvatarMetrics registers the avatar lookup counter on the provided registerer.
func NewAvatarMetrics(reg prometheus.Registerer) *AvatarMetrics {
	if reg == nil {
		return &AvatarMetrics{}
	}
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "avatar_lookups_total",
		Help: "Avatar lookups performed at sign-up, by outcome.",
	}, []string{"status"})
	reg.MustRegister(lookups)
	return &AvatarMetrics{lookups: lookups}
}

// Inc records one lookup with the given outcome.
func (a *AvatarMetrics) Inc(status string) {
	if a == nil || a.lookups == nil {
		return
	}
	a.lookups.WithLabelValues(normalizeLabel(status)).Inc()
}
