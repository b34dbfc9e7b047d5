package config

// SampleConfig returns a fully commented configuration file
func SampleConfig() string {
	return `# prhistory configuration
version: "1.0"

server:
  # Root URL of the records portal
  base_url: "http://localhost:5000"
  # Path of the request history API, relative to base_url
  history_path: "/request/api/v1.0/history"
  # Per-request timeout
  timeout: 15s
  # Extra attempts for the same page after a transient failure
  max_retries: 0
  retry_delay: 500ms
  # Portal session, sent as the "session" cookie
  session_cookie: ""
  # Extra request headers
  headers: {}

source:
  # Read history from an exported json or yaml file instead of the portal
  file: ""
  # Reload the viewer when the file changes
  watch: true
  debounce: 200ms

output:
  # text, json, markdown, csv or html
  default_format: text
  # auto, always or never
  color_mode: auto
  verbose: false

ui:
  # default, high-contrast or minimal
  theme: default
`
}

// MinimalSampleConfig returns a configuration file with only the essentials
func MinimalSampleConfig() string {
	return `version: "1.0"

server:
  base_url: "http://localhost:5000"
  session_cookie: ""

output:
  default_format: text
`
}
