// Package validation implements a LIVR (Language Independent Validation
// Rules) engine used to assert the shape of service output.
//
// A rule set maps field names to rule specs:
//
//	status:  required
//	user:
//	  nested_object:
//	    id:    [required, positive_integer]
//	    email: [required, email]
//	tags:
//	  list_of: [[required, string]]
//
// Validate returns the cleaned output: only described fields, after modifier
// rules such as trim or default. Comparing the cleaned output with the
// original input is a strict equality check, since any undescribed field is
// dropped.
//
// ExtraRules adds boolean, is, uuid, ipv4, md5, iso_date_time, list_length,
// list_items_unique, required_if and cel.
package validation
