// Package matchmaker embeds the compatibility ranking engine in a Go program.
// Profiles and pairing records live in Redis or Valkey; scoring runs in-process.
//
//	client, _ := matchmaker.New(ctx, matchmaker.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	_ = client.UpsertProfile(ctx, matchmaker.Profile{UID: "u1", Interests: []string{"go", "climbing"}})
//	list, _ := client.FindMatches(ctx, "u1", 10)
//	for _, m := range list.Matches {
//	    fmt.Println(m.Candidate.UID, m.TotalScore, m.Label)
//	}
//
// Rank scores a caller-supplied pool without touching storage:
//
//	list, _ := client.Rank(ctx, matchmaker.RankRequest{Subject: me, Candidates: pool})
//
// Without WithEmbedder, text similarity uses a deterministic offline
// feature-hashing embedder.
package matchmaker
