// Package driving defines the inbound ports: the operations the CLI and
// the dashboard invoke on the core. Each phase is independently invokable
// against the persisted metadata bundle.
package driving
