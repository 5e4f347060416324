// Package tags builds the EC2 tag sets applied to instances and volumes.
//
// Every resource created for a machine carries the machine name and a
// managed-by marker under the vagrant-aws/ prefix, plus a Name tag and any
// user-supplied tags. Tags are emitted sorted by key so requests are stable.
package tags
