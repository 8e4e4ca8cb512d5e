// Package ir provides the expression intermediate representation for mchain.
//
// An expression is a tree built bottom-up from four node variants: Operand
// leaves, Unary (transpose, inverse), Binary (two-factor product) and Nary
// (flattened product). Expr is a sealed interface; no other package can add
// a variant, so every switch over the closed set is exhaustive.
//
// All other internal packages import ir; ir imports nothing internal. This
// keeps IR the foundational layer with no circular dependencies.
//
// Key constraints:
//   - Nodes are immutable after construction and may be shared by any number
//     of parents. Trees are acyclic by construction.
//   - Only Operand carries declared properties. Composite nodes derive their
//     properties structurally (see package props).
//   - Shapes are always (rows, cols) with positive dimensions; products are
//     conformable at construction time.
//   - Operand identity is pointer identity. Two operands with the same name
//     and shape are different operands.
package ir
