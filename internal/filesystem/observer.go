package filesystem

// Observer records retry metrics. The metrics package provides the
// implementation so that filesystem does not import it.
type Observer interface {
	// retryOp is "stat" or "readfile"; volume is a VolumeResolver label.
	ObserveRetryAttempt(retryOp, volume string)
	ObserveRetrySuccess(retryOp, volume string)
	ObserveRetryFailure(retryOp, volume string)
	ObserveRetryDuration(retryOp, volume string, durationSeconds float64)
	ObserveStaleError(retryOp, volume string)
}

// nopObserver is used until SetObserver is called.
type nopObserver struct{}

func (nopObserver) ObserveRetryAttempt(string, string)           {}
func (nopObserver) ObserveRetrySuccess(string, string)           {}
func (nopObserver) ObserveRetryFailure(string, string)           {}
func (nopObserver) ObserveRetryDuration(string, string, float64) {}
func (nopObserver) ObserveStaleError(string, string)             {}

var defaultObserver Observer = nopObserver{}

// SetObserver sets the package-level metrics observer. A nil observer
// disables recording.
func SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	defaultObserver = o
}
