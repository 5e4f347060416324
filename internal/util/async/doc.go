// Package async runs independent tasks concurrently and collects their errors.
//
// It is used to bring several machines up at once; each machine's
// provisioning attempt is one [Task].
package async
