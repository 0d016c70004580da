// Package returns holds the return-mail domain model: the customer request,
// the artifacts produced by each pipeline stage, the audit record written for
// every attempt, and the typed errors each stage fails with.
//
// The package has no infrastructure dependencies. Carrier, composer, mail and
// audit adapters implement the ports declared in ports.go.
package returns
