// Package topicdex discovers topics in a collection of embedded documents
// in-process, without running the HTTP service.
//
// Documents are clustered on their embeddings; topic keywords come from the
// document texts. Fitted models are kept in memory by default, or in Valkey
// or Redis, so topics can be inspected and merged after the analysis:
//
//	client, _ := topicdex.New(ctx)
//	defer client.Close()
//
//	res, _ := client.Analyze(ctx, docs, topicdex.Params{MinTopicSize: 5})
//	for _, t := range res.Topics {
//	    fmt.Println(t.ID, t.Label, t.Size)
//	}
//
//	detail, _ := client.Topic(ctx, res.ModelID, 0)
//	merged, _ := client.Reduce(ctx, res.ModelID, 3)
package topicdex
