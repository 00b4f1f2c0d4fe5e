package mocks

//go:generate go run github.com/vektra/mockery/v2@v2.53.5 --name Store --dir ../planner --output planner --outpkg plannermock --filename store_mock.go
