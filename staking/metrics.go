package staking

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	totalStakedGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "svault_total_staked",
		Help: "Total deposited balance across all stakers",
	})
	stakersCountGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "svault_stakers_count",
		Help: "Stakers ever registered",
	})
	actionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "svault_actions_total",
		Help: "Successful staking actions counter",
	}, []string{"type"})
)
