/*
Package foreman runs a supervisor-routed team of agents that answers a query.

A run threads one State through three nodes. The supervisor classifies the
query and picks who acts next, research gathers facts through a Searcher and
writing turns them into a draft through a Generator. Research and writing
always hand control back to the supervisor, which ends the run once a draft
exists. A step bound guarantees that every run terminates, and a run that
breaks the routing contract fails closed with a typed *domain.Failure.

# Usage

	eng, err := foreman.New(
		offline.NewSearcher(),
		offline.NewGenerator(),
		offline.NewDecider(),
		foreman.WithStore(file.New(".foreman/runs")),
	)
	if err != nil {
		log.Fatal(err)
	}

	state, err := eng.Run(ctx, "What is fusion power research?")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(state.Draft)

With a store configured every turn is checkpointed, so a canceled run can be
continued with Resume.
*/
package foreman
