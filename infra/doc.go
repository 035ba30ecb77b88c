// Package infra contains technical adapters: history sources, the MQTT
// publisher, metrics sinks and the logger. These packages depend only on
// the interfaces and types defined in the core packages.
package infra
