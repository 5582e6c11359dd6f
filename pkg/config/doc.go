// Package config loads pwdrift's own configuration and validates
// user-authored baseline documents.
//
// Three concerns live here:
//
//   - the YAML application config (component endpoints, SSH settings,
//     store path, rules directory), decoded with yaml.v3 and validated
//     with go-playground/validator struct tags;
//
//   - CUE schema validation of baseline JSON documents, so a hand-edited
//     baseline fails with a pointed message before the typed decoder ever
//     sees it;
//
//   - Starlark evaluation of templated baselines (*.star), for operators
//     who generate per-environment baselines programmatically. The script
//     must leave a `baseline` dict in its globals; the dict is rendered to
//     JSON and flows through the same validation and decoding path as a
//     plain JSON baseline.
package config
