package usecase

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// catalogLoadsTotal counts catalog snapshot loads, partitioned by where the snapshot came from.
var catalogLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comparaprecios_catalog_loads_total",
	Help: "Catalog snapshot loads by source (cache or repository).",
}, []string{"source"})

// comparisonsTotal counts engine invocations by operation.
var comparisonsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "comparaprecios_comparisons_total",
	Help: "Comparison operations by kind and outcome.",
}, []string{"operation", "outcome"})
