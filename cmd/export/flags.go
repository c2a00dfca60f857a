package export

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/iacexport/iacexport/cmd/util"
)

// bindExportFlagsFunc binds the cobra cmd flags to the equivalent config value being managed
// by viper. This bridges the config between cobra flags and viper flags.
func bindExportFlagsFunc(flags *pflag.FlagSet) func(*cobra.Command, []string) {
	return func(command *cobra.Command, _ []string) {
		util.MustBindPFlag("basePath", flags.Lookup("base-path"))
		util.MustBindEnv("basePath", "IACEXPORT_BASE_PATH", "IACEXPORT_BASEPATH")

		util.MustBindPFlag("resources", flags.Lookup("resources"))
		util.MustBindEnv("resources", "IACEXPORT_RESOURCES")

		util.MustBindPFlag("log.format", flags.Lookup("log-format"))
		util.MustBindEnv("log.format", "IACEXPORT_LOG_FORMAT")

		util.MustBindPFlag("log.level", flags.Lookup("log-level"))
		util.MustBindEnv("log.level", "IACEXPORT_LOG_LEVEL")

		util.MustBindPFlag("log.timestampFormat", flags.Lookup("log-timestamp-format"))
		util.MustBindEnv("log.timestampFormat", "IACEXPORT_LOG_TIMESTAMP_FORMAT", "IACEXPORT_LOG_TIMESTAMPFORMAT")

		util.MustBindPFlag("pipeline.distributed", flags.Lookup("distributed"))
		util.MustBindEnv("pipeline.distributed", "IACEXPORT_PIPELINE_DISTRIBUTED")

		util.MustBindPFlag("pipeline.buffer", flags.Lookup("buffer"))
		util.MustBindEnv("pipeline.buffer", "IACEXPORT_PIPELINE_BUFFER")

		util.MustBindPFlag("pipeline.workers", flags.Lookup("workers"))
		util.MustBindEnv("pipeline.workers", "IACEXPORT_PIPELINE_WORKERS")

		util.MustBindPFlag("retry.interval", flags.Lookup("retry-interval"))
		util.MustBindEnv("retry.interval", "IACEXPORT_RETRY_INTERVAL")

		util.MustBindPFlag("retry.maxAttempts", flags.Lookup("retry-max-attempts"))
		util.MustBindEnv("retry.maxAttempts", "IACEXPORT_RETRY_MAX_ATTEMPTS", "IACEXPORT_RETRY_MAXATTEMPTS")

		util.MustBindPFlag("retry.maxElapsed", flags.Lookup("retry-max-elapsed"))
		util.MustBindEnv("retry.maxElapsed", "IACEXPORT_RETRY_MAX_ELAPSED", "IACEXPORT_RETRY_MAXELAPSED")

		util.MustBindPFlag("http.timeout", flags.Lookup("http-timeout"))
		util.MustBindEnv("http.timeout", "IACEXPORT_HTTP_TIMEOUT")

		util.MustBindPFlag("http.retryMax", flags.Lookup("http-retry-max"))
		util.MustBindEnv("http.retryMax", "IACEXPORT_HTTP_RETRY_MAX", "IACEXPORT_HTTP_RETRYMAX")

		util.MustBindPFlag("http.requestsPerSecond", flags.Lookup("http-requests-per-second"))
		util.MustBindEnv("http.requestsPerSecond", "IACEXPORT_HTTP_REQUESTS_PER_SECOND", "IACEXPORT_HTTP_REQUESTSPERSECOND")

		util.MustBindEnv("http.token", "IACEXPORT_HTTP_TOKEN")

		util.MustBindPFlag("metrics.textfile", flags.Lookup("metrics-textfile"))
		util.MustBindEnv("metrics.textfile", "IACEXPORT_METRICS_TEXTFILE")

		util.MustBindPFlag("trace.enabled", flags.Lookup("trace-enabled"))
		util.MustBindEnv("trace.enabled", "IACEXPORT_TRACE_ENABLED")

		util.MustBindPFlag("trace.otlp.endpoint", flags.Lookup("trace-otlp-endpoint"))
		util.MustBindEnv("trace.otlp.endpoint", "IACEXPORT_TRACE_OTLP_ENDPOINT")

		util.MustBindPFlag("trace.otlp.tls.enabled", flags.Lookup("trace-otlp-tls-enabled"))
		util.MustBindEnv("trace.otlp.tls.enabled", "IACEXPORT_TRACE_OTLP_TLS_ENABLED")

		util.MustBindPFlag("trace.sampleRatio", flags.Lookup("trace-sample-ratio"))
		util.MustBindEnv("trace.sampleRatio", "IACEXPORT_TRACE_SAMPLE_RATIO", "IACEXPORT_TRACE_SAMPLERATIO")

		util.MustBindPFlag("trace.serviceName", flags.Lookup("trace-service-name"))
		util.MustBindEnv("trace.serviceName", "IACEXPORT_TRACE_SERVICE_NAME", "IACEXPORT_TRACE_SERVICENAME")

		util.MustBindPFlag("manifest.enabled", flags.Lookup("manifest-enabled"))
		util.MustBindEnv("manifest.enabled", "IACEXPORT_MANIFEST_ENABLED")

		util.MustBindPFlag("manifest.uri", flags.Lookup("manifest-uri"))
		util.MustBindEnv("manifest.uri", "IACEXPORT_MANIFEST_URI")
	}
}
