// Package props infers algebraic properties of expression trees.
//
// Six predicates are defined: IsUpperTriangular, IsLowerTriangular,
// IsSquare, IsSymmetric, IsFullRank and IsSPD. Operands answer from their
// declared property set; composite nodes answer by rule:
//
//	              Transpose(x)         Invert(x)     Mul / Nary
//	upperTri      x.lowerTri           -             all factors upperTri
//	lowerTri      x.upperTri           -             all factors lowerTri
//	square        x.square             -             -
//	symmetric     x.symmetric|x.SPD    -             SPD(same node)
//	fullRank      x.fullRank           x.fullRank    false
//	SPD           -                    -             l.fullRank & l == r^T
//
// A "-" cell is not defined. Querying it returns *UnsupportedQueryError
// rather than a silent false, and the error propagates through every
// predicate that consults the cell.
//
// The rules are conservative: a false answer means "not known to hold".
// Squareness of a product is deliberately not derived.
package props
