// Package fixtures discovers test cases on disk and loads their fixture files.
//
// A case root is a directory whose immediate sub-directories are cases:
//
//	tests/users/
//	  settings.yaml          shared by every case
//	  create-user/
//	    input.json
//	    expected.yaml
//	  create-user-duplicate/
//	    seed.yaml
//	    input.json
//	    exception.yaml
//
// Every regular file of a directory is decoded into Data under its name with
// all extensions removed, so input.json and input.yaml.tmpl both load as
// "input". The decoder is chosen by the last extension through the format
// Registry: json, yaml, toml and plain text are built in, anything unknown is
// loaded as text. A trailing .tmpl renders the file with gomplate first, with
// the root data and caseDir as template context.
//
// Case data is merged over the root data, case keys winning.
package fixtures
