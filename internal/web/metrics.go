package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultBusy     = "busy"
)

var (
	createdTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "ledgerd",
		Name:      "items_created_total",
		Help:      "Items stored through the API, or rejected batches.",
	}, []string{"result"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "ledgerd",
		Name:      "uploads_total",
		Help:      "File uploads handled, by result.",
	}, []string{"result"})

	uploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "ledgerd",
		Name:      "uploaded_bytes_total",
		Help:      "Bytes of file content accepted.",
	})
)
