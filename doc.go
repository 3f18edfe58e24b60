// Package nblast scores the morphological similarity of two skeletons.
//
// A skeleton is a tree of 3D points. Every non-root point contributes one
// segment pointing to its parent. Scoring matches each query segment to the
// nearest target segment by midpoint, looks up the (distance, angle) pair in
// a score table and sums the results. The final score averages the forward
// and reverse sums, each normalized by the corresponding self-match sum:
//
//	score = (fwd/fwdSelf + rev/revSelf) / 2
//
// # Quick Start
//
//	tbl, _ := scoretable.ReadFile("smat.tsv")
//	scorer, _ := nblast.NewScorer(tbl)
//
//	q, _ := skeleton.ReadFile("query.swc")
//	t, _ := skeleton.ReadFile("target.swc")
//	res, _ := scorer.Score(q, t)
//	fmt.Println(res.Score)
//
// Scoring one query against many targets reuses the query's prepared index
// and self score:
//
//	results, _ := scorer.ScoreMany(ctx, q, ids, collection)
//	for _, r := range results {
//	    if r.Err != nil {
//	        continue // failed targets do not abort the batch
//	    }
//	    fmt.Println(r.Target, r.Result.Score)
//	}
//
// # Score Tables
//
// Score tables are estimated from sampled matches by package matrix and
// stored by package scoretable. Skeletons, tables and the "current table"
// pointer can live in any blobstore backend (local disk, MinIO, S3).
package nblast
