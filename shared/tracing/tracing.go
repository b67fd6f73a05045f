package tracing

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.opencensus.io/trace"
)

var log = logrus.WithField("prefix", "tracing")

// Setup configures opencensus tracing for the process. When tracing is
// disabled a never-sample policy is installed so instrumented handlers
// stay cheap.
func Setup(serviceName, processName string, sampleFraction float64, enable bool) error {
	if !enable {
		trace.ApplyConfig(trace.Config{DefaultSampler: trace.NeverSample()})
		return nil
	}

	if serviceName == "" {
		return errors.New("tracing service name cannot be empty")
	}

	log.WithFields(logrus.Fields{
		"serviceName":    serviceName,
		"processName":    processName,
		"sampleFraction": sampleFraction,
	}).Info("Starting tracing")

	trace.ApplyConfig(trace.Config{DefaultSampler: trace.ProbabilitySampler(sampleFraction)})

	return nil
}
