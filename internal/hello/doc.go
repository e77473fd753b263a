// Package hello implementa el endpoint de dispatch de Hellō: arma el
// redirect de login hacia el wallet, recibe el callback, delega canje e
// introspección del token en el wallet y entrega el Payload validado al
// SessionHook (el reconciler de cuentas).
//
// No verifica firmas localmente: la validez del id_token la decide el
// endpoint de introspección del wallet.
package hello
