package service

import "context"

type testTxRepos struct {
	schemes    SchemeRepositoryInterface
	scrapeRuns ScrapeRunRepositoryInterface
}

func (t *testTxRepos) Schemes() SchemeRepositoryInterface {
	return t.schemes
}

func (t *testTxRepos) ScrapeRuns() ScrapeRunRepositoryInterface {
	return t.scrapeRuns
}

type testTxRunner struct {
	repos  TxRepositories
	err    error
	called bool
}

func (t *testTxRunner) WithTx(ctx context.Context, fn func(repos TxRepositories) error) error {
	t.called = true
	if t.err != nil {
		return t.err
	}
	return fn(t.repos)
}
