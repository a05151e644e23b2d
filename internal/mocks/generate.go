package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Directory --dir ../domain/account --output domain/account --outpkg accountmock --filename directory_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../domain/preference --output domain/preference --outpkg preferencemock --filename store_mock.go
//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Source --dir ../domain/playerstats --output domain/playerstats --outpkg playerstatsmock --filename source_mock.go
