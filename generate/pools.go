package generate

// Value pools for synthetic field content. Values are plausible rather than
// statistically realistic; distribution fidelity is out of scope.

var firstNames = []string{
	"Ana", "Bruno", "Carla", "Daniel", "Eduarda", "Felipe", "Gabriela",
	"Henrique", "Isabela", "Joao", "Larissa", "Marcos", "Natalia", "Otavio",
	"Patricia", "Rafael", "Sofia", "Thiago", "Vanessa", "William",
}

var lastNames = []string{
	"Silva", "Santos", "Oliveira", "Souza", "Rodrigues", "Ferreira",
	"Almeida", "Pereira", "Lima", "Gomes", "Costa", "Ribeiro", "Martins",
	"Carvalho", "Araujo", "Barbosa", "Rocha", "Dias", "Nascimento", "Moreira",
}

var cities = []struct {
	name  string
	state string
}{
	{"Sao Paulo", "SP"},
	{"Rio de Janeiro", "RJ"},
	{"Belo Horizonte", "MG"},
	{"Curitiba", "PR"},
	{"Porto Alegre", "RS"},
	{"Salvador", "BA"},
	{"Recife", "PE"},
	{"Fortaleza", "CE"},
	{"Brasilia", "DF"},
	{"Campinas", "SP"},
}

var streets = []string{
	"Rua das Flores", "Avenida Paulista", "Rua XV de Novembro",
	"Avenida Atlantica", "Rua da Consolacao", "Avenida Brasil",
	"Rua Augusta", "Avenida Ipiranga", "Rua do Comercio", "Travessa da Paz",
}

var neighborhoods = []string{
	"Centro", "Jardins", "Copacabana", "Savassi", "Batel",
	"Moinhos de Vento", "Barra", "Boa Viagem", "Meireles", "Cambui",
}

var employmentStatuses = []string{
	"EMPLOYED", "EMPLOYED", "EMPLOYED", "SELF_EMPLOYED", "RETIRED", "UNEMPLOYED",
}

var bankCodes = []string{"001", "033", "104", "237", "341"}

var cardBrands = []string{"VISA", "MASTERCARD", "ELO"}

var transactionTypes = []string{"PIX", "PIX", "PIX", "TED", "BOLETO", "WITHDRAW", "DEPOSIT", "DOC"}

var pixKeyTypes = []string{"CPF", "CNPJ", "EMAIL", "PHONE", "EVP"}

var merchants = []struct {
	name     string
	category string
	mcc      string
}{
	{"Supermercado Bom Preco", "GROCERY", "5411"},
	{"Posto Estrela", "FUEL", "5541"},
	{"Restaurante Sabor", "RESTAURANT", "5812"},
	{"Farmacia Saude", "PHARMACY", "5912"},
	{"Livraria Central", "RETAIL", "5942"},
	{"Cinema Lux", "ENTERTAINMENT", "7832"},
	{"Loja de Roupas Moda", "APPAREL", "5651"},
	{"Eletronicos Mega", "ELECTRONICS", "5732"},
	{"Padaria Trigo de Ouro", "BAKERY", "5462"},
	{"Companhia Aerea Voar", "AIRLINE", "4511"},
}

var stockListings = []struct {
	ticker  string
	company string
	sector  string
	segment string
}{
	{"PETR4", "Petroleo Brasileiro SA", "Energy", "Oil and Gas"},
	{"VALE3", "Vale SA", "Materials", "Mining"},
	{"ITUB4", "Itau Unibanco Holding SA", "Financials", "Banking"},
	{"BBDC4", "Banco Bradesco SA", "Financials", "Banking"},
	{"ABEV3", "Ambev SA", "Consumer Staples", "Beverages"},
	{"WEGE3", "WEG SA", "Industrials", "Capital Goods"},
	{"MGLU3", "Magazine Luiza SA", "Consumer Discretionary", "Retail"},
	{"RENT3", "Localiza Rent a Car SA", "Industrials", "Car Rental"},
	{"SUZB3", "Suzano SA", "Materials", "Pulp and Paper"},
	{"RADL3", "Raia Drogasil SA", "Consumer Staples", "Drugstores"},
}

var loanTypes = []string{"PERSONAL", "PERSONAL", "VEHICLE", "HOUSING"}

var propertyTypes = []string{"APARTMENT", "APARTMENT", "HOUSE", "LAND"}
