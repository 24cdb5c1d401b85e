// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides shared CUE schema utilities.
//
// Two flows are supported. ParseAndDecode compiles a CUE document, unifies it
// with an embedded schema definition and decodes the result into a Go struct;
// the configuration loader uses it. Validate checks a document that was
// decoded from another format (YAML manifests are re-encoded as JSON, which is
// valid CUE) against a definition and reports every violation with its path.
//
// # Usage
//
//	//go:embed manifest_schema.cue
//	var schemaBytes []byte
//
//	if err := cueutil.Validate(schemaBytes, jsonDoc, "#Manifest",
//	    cueutil.WithFilename("prism-package.yaml")); err != nil {
//	    var se *cueutil.SchemaError
//	    if errors.As(err, &se) {
//	        for _, v := range se.Violations {
//	            fmt.Println(v.Path, v.Message)
//	        }
//	    }
//	}
package cueutil
