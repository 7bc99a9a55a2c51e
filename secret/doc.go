// Package secret resolves configuration values that may hold credentials.
//
// It supports:
//   - Strict environment expansion (see ExpandEnvStrict)
//   - Pluggable secret providers (see Provider + Registry), with built-in
//     "env" and "file" providers
//   - Resolving secret references in configuration values (see Resolver)
//
// References use the prefix "secretref:":
//   - Full value:  secretref:env:UPGUARD_API_KEY
//   - From a file: secretref:file:upguard/api_key
//   - Inline use:  Bearer secretref:env:UPGUARD_API_KEY
package secret
