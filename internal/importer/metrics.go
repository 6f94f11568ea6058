package importer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeCreated    = "created"
	outcomeSkipped    = "skipped"
	outcomeReconciled = "reconciled"
	outcomePending    = "pending"
	outcomeInvalid    = "invalid"

	resultUploaded        = "uploaded"
	resultAlreadyUploaded = "already_uploaded"
	resultHashMismatch    = "hash_mismatch"
	resultMissingFile     = "missing_file"
)

var (
	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "importer",
		Name:      "items_total",
		Help:      "Items processed by the importer, by outcome.",
	}, []string{"outcome"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "importer",
		Name:      "uploads_total",
		Help:      "File uploads attempted by the importer, by result.",
	}, []string{"result"})

	batchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ledgerimport",
		Subsystem: "importer",
		Name:      "batches_total",
		Help:      "Batches fully reconciled.",
	})
)
