package utils

type Metric struct {
	DatabaseRead  chan float64
	DatabaseWrite chan float64
	MailSend      chan float64
}

func NewMetric() *Metric {
	return &Metric{
		DatabaseRead:  make(chan float64),
		DatabaseWrite: make(chan float64),
		MailSend:      make(chan float64),
	}
}

// Non-blocking send; drops the sample when no collector is listening
// (metrics must never stall a request or the mail worker).
func MetricSend(ch chan float64, v float64) {
	select {
	case ch <- v:
	default:
	}
}
