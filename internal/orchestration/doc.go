// Package orchestration runs provisioning attempts end to end.
//
// # Workflow
//
// A Runner executes one attempt per machine:
//  1. Admission - wait for the attempt's batch to be admitted
//  2. Launch - create the instance
//  3. Readiness - wait for the instance to be running
//  4. Volumes - create and attach EBS volumes, if any are mapped
//  5. Elastic IP - associate an elastic IP, if one is configured
//  6. SSH - wait until the instance accepts SSH connections
//  7. Handoff - record the instance ID and return the Result
//
// Failures and interruptions are rolled back through the destroy workflow.
//
// # Usage
//
//	runner := orchestration.NewRunner(client, store)
//	results, err := runner.UpAll(ctx, machines)
package orchestration
