package handler

// Route paths.
const (
	RouteRoot   = "/"
	RouteLogin  = "/login"
	RouteLogout = "/logout"
	RouteHealth = "/health"

	RouteProdutos         = "/produtos"
	RouteProdutosPesquisa = "/produtos/pesquisar"
	RouteProdutosCriar    = "/produtos/criar"
	RouteProdutosEditar   = "/produtos/editar/{id}"
	RouteProdutosDeletar  = "/produtos/deletar/{id}"

	RouteUsuarios        = "/usuarios"
	RouteUsuariosCriar   = "/usuarios/criar"
	RouteUsuariosEditar  = "/usuarios/editar/{id}"
	RouteUsuariosDeletar = "/usuarios/deletar/{id}"
)

// Multipart form memory limit for photo uploads.
const maxMultipartMemory = 10 << 20 // 10 MB
