// Package errors provides the classified error primitives used across bookbuilder.
//
// Every failure raised while expanding a document tree is a ClassifiedError whose
// category names the failing concern:
//   - CategoryPath: a referenced file is missing or escapes the project root
//   - CategoryInclusion: an input directive would include a file already on the chain
//   - CategoryCode: a line range or label selection cannot be applied
//   - CategoryRepository: a repository mnemonic is undeclared or could not be fetched
//   - CategoryLabel: a label is defined twice or referenced before definition
//   - CategoryMetadata: a metadata key is missing or unavailable
//   - CategoryDirective: a directive invocation is malformed
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryPath, "file not found").
//		WithContext("file", current).
//		WithContext("line", 12).
//		WithCause(statErr).
//		Build()
package errors
