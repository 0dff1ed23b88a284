// Package pipeline loads instance definitions from YAML and CUE files
// and compiles them into registry create specs.
//
// The on-disk form is a flattened surface: task and condition
// parameters live next to their kind tag instead of in nested variant
// objects, which reads naturally in both YAML and CUE. The compiler
// rebuilds the tagged unions and leaves shape enforcement (length
// bounds, privilege, parameter presence) to the registry's validator,
// so a definition that compiles here can still be rejected at create
// time under the engine's parameters.
package pipeline
