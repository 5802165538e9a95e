// Package quiver constructs optimal scalar quantizers.
//
// Given values sorted ascending, optional non-negative weights and a bin
// count s, quiver returns s+1 boundaries B[0] <= ... <= B[s] bracketing the
// values that minimize
//
//	sum_i w[i] * (x[i] - B[k]) * (B[k+1] - x[i])   for B[k] <= x[i] <= B[k+1]
//
// which is the variance of stochastically rounding every value to one of
// its two enclosing boundaries.
//
// # Quick Start
//
//	ctx := context.Background()
//	boundaries, _ := quiver.Construct(ctx, values, nil, 16)
//
// # Modes
//
// Three solvers share one entry point and differ only in configuration:
//
//	// 1. EXACT: the plain partition DP, O(s·n²)
//	q, _ := quiver.New(quiver.WithMode(quiver.ModeExact))
//
//	// 2. ACCELERATED (default): same optimum, O(s·n·log n)
//	q, _ := quiver.New()
//
//	// 3. APPROXIMATE: DP over a sketch of at most M points
//	q, _ := quiver.New(
//	    quiver.WithMode(quiver.ModeApproximate),
//	    quiver.WithSketchSize(1000),
//	)
//
//	res, _ := q.Construct(ctx, values, weights, 16)
//	fmt.Println(res.Boundaries, res.Cost)
//
// Exact and accelerated return the same cost on every input and the same
// boundaries unless several optima tie; both pick the leftmost split then.
// The approximate cost is never below the exact cost, never rises as the
// sketch size grows and equals the exact cost when the input fits the sketch.
//
// # Resources
//
// A resource.Controller bounds the DP table memory of concurrent
// constructions and the parallelism of ConstructBatch. A refused reservation
// fails with ErrResourceExhausted; callers typically retry in
// ModeApproximate. Independently of any controller, a single construction
// whose tables exceed WithMaxTableBytes (DefaultMaxTableBytes unless set) is
// refused the same way before anything is allocated.
//
// # Persistence
//
// Package codebook stores constructed boundaries in any blobstore.BlobStore
// (local disk, memory, S3 or MinIO).
package quiver
