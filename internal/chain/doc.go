// Package chain finds the cheapest parenthesization of a matrix chain.
//
// The optimizer is the classic O(n³) matrix-chain dynamic program, except
// that each candidate multiplication is priced by materializing it and
// asking the cost model, rather than by the product of three dimensions.
// A sub-chain that evaluates to a triangular or Gram (SPD) intermediate is
// therefore cheaper to multiply further, and the search can prefer it.
//
// Tables are 1-indexed over factors 1..n with row and column 0 unused, so
// M[i][j] is the minimal cost of factors i through j and S[i][j] the split
// point k of that optimum. Ties keep the smallest k.
//
// Costs are checked for int64 overflow. A split whose cost overflows is
// skipped; when every parenthesization overflows the optimizer returns a
// *cost.OverflowError.
//
// The optimizer is a pure function of its input. Each call owns its tables;
// the input tree is only read, so concurrent calls over shared trees are
// safe.
package chain
